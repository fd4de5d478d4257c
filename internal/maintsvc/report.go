package maintsvc

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/ravlen/upkeep/internal/wiredate"
)

// reportData is everything the printable snapshot needs.
type reportData struct {
	RecordView
	MachineNames []string
	TopicNames   []string
	NextDue      string
	GeneratedAt  string
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Maintenance report: {{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; border-bottom: 2px solid #222; padding-bottom: .4rem; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #999; padding: .4rem .8rem; text-align: left; }
th { background: #eee; }
.status { text-transform: uppercase; font-weight: bold; }
footer { margin-top: 2rem; font-size: .8rem; color: #777; }
@media print { footer { position: fixed; bottom: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
<tr><th>Status</th><td class="status">{{.Status}}</td></tr>
<tr><th>Scheduled</th><td>{{.ScheduledDate}}</td></tr>
{{if .CompletedDate}}<tr><th>Completed</th><td>{{.CompletedDate}}</td></tr>{{end}}
<tr><th>Frequency</th><td>{{.Frequency}}{{if .CustomDays}} (every {{.CustomDays}} days){{end}}</td></tr>
{{if .Assignee}}<tr><th>Assignee</th><td>{{.Assignee}}</td></tr>{{end}}
{{if .MachineNames}}<tr><th>Machines</th><td>{{range $i, $m := .MachineNames}}{{if $i}}, {{end}}{{$m}}{{end}}</td></tr>{{end}}
{{if .TopicNames}}<tr><th>Topics</th><td>{{range $i, $t := .TopicNames}}{{if $i}}, {{end}}{{$t}}{{end}}</td></tr>{{end}}
{{if .NextDue}}<tr><th>Next due</th><td>{{.NextDue}}</td></tr>{{end}}
</table>
{{if .Notes}}<h2>Notes</h2><p>{{.Notes}}</p>{{end}}
<footer>Generated {{.GeneratedAt}}</footer>
</body>
</html>
`))

// Report renders the printable HTML snapshot of one record. Machine and
// topic names that no longer resolve are shown by id rather than dropped.
func (s *Service) Report(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data := reportData{
		RecordView:  *rec,
		GeneratedAt: s.now().Format(time.RFC1123),
	}
	for _, mid := range rec.MachineIDs {
		if m, err := s.store.GetMachine(mid); err == nil {
			data.MachineNames = append(data.MachineNames, m.Name)
		} else {
			data.MachineNames = append(data.MachineNames, mid)
		}
	}
	topics, err := s.store.ListTopics()
	if err == nil {
		names := make(map[string]string, len(topics))
		for _, t := range topics {
			names[t.ID] = t.Name
		}
		for _, tid := range rec.TopicIDs {
			if n, ok := names[tid]; ok {
				data.TopicNames = append(data.TopicNames, n)
			} else {
				data.TopicNames = append(data.TopicNames, tid)
			}
		}
	}
	if rec.CompletedDate == "" {
		if scheduled, perr := wiredate.Parse(rec.ScheduledDate); perr == nil {
			data.NextDue = wiredate.Format(scheduled)
		}
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("report: render: %w", err)
	}
	return buf.Bytes(), nil
}
