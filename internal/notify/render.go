package notify

import (
	"bytes"
	"html/template"
	"time"

	"cowin-slot-mailer/internal/availability"
	"cowin-slot-mailer/internal/cowin"
)

const emailTemplate = `<table border="1" class="dataframe">
  <thead>
    <tr style="text-align: right;">
      <th>Pincode</th>
      <th>Total Slots</th>
      <th>Date</th>
      <th>Vaccine</th>
      <th>Block Name</th>
      <th>Fee Type</th>
      <th>Center Name</th>
      <th>Center Address</th>
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
      <td>{{.Pincode}}</td>
      <td>{{.AvailableCapacity}}</td>
      <td>{{date .Date}}</td>
      <td>{{.Vaccine}}</td>
      <td>{{.BlockName}}</td>
      <td>{{.FeeType}}</td>
      <td>{{.CenterName}}</td>
      <td>{{.Address}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
`

var tableTemplate = template.Must(template.New("Email").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(cowin.DateLayout) },
}).Parse(emailTemplate))

// RenderTable renders the report rows as an HTML table.
func RenderTable(report availability.Report) (string, error) {
	var body bytes.Buffer
	if err := tableTemplate.Execute(&body, report); err != nil {
		return "", err
	}
	return body.String(), nil
}
