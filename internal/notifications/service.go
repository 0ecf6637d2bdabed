package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/facilisimo/sorteos/internal/config"
	"github.com/facilisimo/sorteos/internal/export"
	"github.com/facilisimo/sorteos/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	send   func(m *gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var searchLabels = map[models.SearchMode]string{
	models.SearchRandom: "Aleatorio",
	models.SearchNumber: "Número",
	models.SearchWord:   "Palabra",
	models.SearchMarker: "Marcador",
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	s.send = s.dialAndSend
	return s
}

// SendWinners announces the winners via configured notification channels
func (s *Service) SendWinners(report *models.WinnersReport, pdf []byte) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent winners to Teams")
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report, pdf); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent winners via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.WinnersReport) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.WinnersReport) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "FFDD33",
		Title:      fmt.Sprintf("🎉 %s", report.Title),
		Text:       winnersSentence(len(report.Winners)),
	}

	facts := []TeamsFact{
		{Name: "Ganadores", Value: fmt.Sprintf("%d", len(report.Winners))},
		{Name: "Generado", Value: export.DateLine(report.GeneratedAt)},
	}
	if report.Criterion != nil {
		facts = append(facts, TeamsFact{Name: "Criterio", Value: criterionText(report.Criterion)})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Resumen",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Winners) > 0 {
		var lines []string
		for _, row := range export.Rows(report.Winners) {
			line := fmt.Sprintf("%d. **%s**", row.Index, row.Username)
			if row.Platform != "" {
				line += fmt.Sprintf(" (%s)", row.Platform)
			}
			if row.Comment != "" {
				line += ": " + truncate(row.Comment, 140)
			}
			lines = append(lines, line)
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Ganadores",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.WinnersReport, pdf []byte) error {
	subject := fmt.Sprintf("%s - %s", report.Title, winnersSentence(len(report.Winners)))

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(report)

	// Create message
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if len(pdf) > 0 {
		m.Attach(export.FileName(report.GeneratedAt), gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}))
	}

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) dialAndSend(m *gomail.Message) error {
	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	return d.DialAndSend(m)
}

func (s *Service) buildEmailHTML(report *models.WinnersReport) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #ffdd33; color: #212529; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; width: 100%; }
        th { background-color: #212529; color: #ffdd33; padding: 8px; text-align: left; }
        td { padding: 8px; }
        tr:nth-child(even) td { background-color: #f5f5f5; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>{{dateLine .GeneratedAt}}</p>
    </div>

    <div class="summary">
        <p><strong>Ganadores:</strong> {{len .Winners}}</p>
        {{if .Criterion}}<p><strong>Criterio:</strong> {{criterion .Criterion}}</p>{{end}}
    </div>

    <table>
        <tr><th>#</th><th>Usuario</th><th>Comentario</th><th>Plataforma</th></tr>
        {{range rows .Winners}}
        <tr><td>{{.Index}}</td><td>{{.Username}}</td><td>{{truncate .Comment 200}}</td><td>{{.Platform}}</td></tr>
        {{end}}
    </table>

    <hr>
    <p><small>{{slogan}}</small></p>
</body>
</html>
`

	// Create template with custom functions
	t := template.New("email").Funcs(template.FuncMap{
		"dateLine":  export.DateLine,
		"criterion": criterionText,
		"rows":      export.Rows,
		"truncate":  truncate,
		"slogan":    func() string { return export.Slogan },
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.WinnersReport) string {
	var text strings.Builder

	text.WriteString(report.Title + "\n")
	text.WriteString(export.DateLine(report.GeneratedAt) + "\n\n")

	if report.Criterion != nil {
		text.WriteString(fmt.Sprintf("Criterio: %s\n", criterionText(report.Criterion)))
	}
	text.WriteString(fmt.Sprintf("Ganadores: %d\n", len(report.Winners)))
	text.WriteString("==========\n")

	for _, row := range export.Rows(report.Winners) {
		text.WriteString(fmt.Sprintf("\n%d. %s", row.Index, row.Username))
		if row.Platform != "" {
			text.WriteString(fmt.Sprintf(" (%s)", row.Platform))
		}
		text.WriteString("\n")
		if row.Comment != "" {
			text.WriteString(fmt.Sprintf("   %s\n", truncate(row.Comment, 200)))
		}
	}

	text.WriteString("\n---\n" + export.Slogan + "\n")

	return text.String()
}

func winnersSentence(n int) string {
	if n == 1 {
		return "1 ganador"
	}
	return fmt.Sprintf("%d ganadores", n)
}

func criterionText(c *models.SearchCriterion) string {
	label, ok := searchLabels[c.Tipo]
	if !ok {
		label = string(c.Tipo)
	}
	if c.Valor == "" {
		return label
	}
	return fmt.Sprintf("%s: %s", label, c.Valor)
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
