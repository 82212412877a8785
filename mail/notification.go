package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"memoryshare/models"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<html>
<body>
  <h2>New memory shared: {{.Title}}</h2>
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  <p>Uploaded on {{.UploadDate.Format "Jan 02, 2006"}}</p>
  {{if .Tags}}<p>Tags: {{range $i, $t := .Tags}}{{if $i}}, {{end}}{{$t}}{{end}}</p>{{end}}
</body>
</html>`))

// NotificationSubject builds the subject line for a new-memory notification
func NotificationSubject(memory *models.Memory) string {
	title := strings.TrimSpace(memory.Title)
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("New memory: %s", title)
}

// NotificationBody renders the HTML body for a new-memory notification
func NotificationBody(memory *models.Memory) (string, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, memory); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return buf.String(), nil
}
