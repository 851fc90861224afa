package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/psps16/fitness-ai/internal/assistant"
	"github.com/psps16/fitness-ai/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(20)
)

// renderer turns the controller's tagged outputs into terminal text. Markdown
// payloads go through glamour; everything else is styled with lipgloss.
type renderer struct {
	w  io.Writer
	md *glamour.TermRenderer
}

func newRenderer(w io.Writer) *renderer {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		md = nil // fall back to raw markdown text
	}
	return &renderer{w: w, md: md}
}

func (r *renderer) banner() {
	fmt.Fprintln(r.w, headerStyle.Render("WELCOME TO FITAI - YOUR PERSONALIZED FITNESS ASSISTANT"))
	fmt.Fprintln(r.w)
}

func (r *renderer) plain(s string) {
	fmt.Fprintln(r.w, s)
}

func (r *renderer) inputMark(mark string) {
	fmt.Fprint(r.w, promptStyle.Render(mark))
}

func (r *renderer) markdown(s string) {
	if r.md != nil {
		if rendered, err := r.md.Render(s); err == nil {
			fmt.Fprint(r.w, rendered)
			return
		}
	}
	fmt.Fprintln(r.w, s)
}

func (r *renderer) notices(notes []string) {
	for _, n := range notes {
		fmt.Fprintln(r.w, noticeStyle.Render(n))
	}
}

func (r *renderer) render(out assistant.Output) {
	switch out.Kind {
	case assistant.OutMessage, assistant.OutExit:
		if out.Text != "" {
			if out.Err {
				fmt.Fprintln(r.w, errorStyle.Render(out.Text))
			} else {
				fmt.Fprintln(r.w, out.Text)
			}
		}
		r.notices(out.Notices)

	case assistant.OutPrompt:
		r.notices(out.Notices)
		if out.Err {
			fmt.Fprintln(r.w, errorStyle.Render(out.Text))
		} else {
			fmt.Fprintln(r.w, promptStyle.Render(out.Text))
		}

	case assistant.OutMarkdown:
		r.markdown(out.Text)
		r.notices(out.Notices)

	case assistant.OutPlans:
		r.notices(out.Notices)
		for _, plan := range out.Plans {
			fmt.Fprintln(r.w, titleStyle.Render(strings.ToUpper("your "+plan.Kind.Title())+
				fmt.Sprintf("  (revision %d, updated %s)", plan.Revision, plan.LastUpdated.Format("2006-01-02"))))
			r.markdown(plan.Body)
		}

	case assistant.OutHistory:
		fmt.Fprintln(r.w, headerStyle.Render("RECENT CHAT HISTORY"))
		for _, m := range out.History {
			stamp := m.CreatedAt.Format("2006-01-02 15:04:05")
			if m.Role == models.RoleAssistant {
				fmt.Fprintln(r.w, titleStyle.Render("FitAI:"))
				r.markdown(m.Text)
			} else {
				fmt.Fprintf(r.w, "%s %s\n", titleStyle.Render("You ("+stamp+"):"), m.Text)
			}
		}
		r.notices(out.Notices)

	case assistant.OutProfile:
		fmt.Fprintln(r.w, headerStyle.Render("PROFILE INFORMATION"))
		p := out.Profile
		rows := []struct{ label, value string }{
			{"Name", p.Name},
			{"Age", fmt.Sprintf("%d", p.Age)},
			{"Height", fmt.Sprintf("%.1f cm", p.HeightCM)},
			{"Weight", fmt.Sprintf("%.1f kg", p.WeightKG)},
			{"BMI", fmt.Sprintf("%.2f (%s)", p.BMI(), p.BMICategory())},
			{"Activity Level", p.ActivityLevel},
			{"Fitness Goal", p.FitnessGoal},
			{"Dietary Preference", p.DietaryPreference},
		}
		if p.BloodGroup != "" {
			rows = append(rows, struct{ label, value string }{"Blood Group", p.BloodGroup})
		}
		for _, row := range rows {
			fmt.Fprintf(r.w, "%s %s\n", labelStyle.Render(row.label), row.value)
		}
		r.notices(out.Notices)

	case assistant.OutHelp:
		fmt.Fprintln(r.w, headerStyle.Render("AVAILABLE COMMANDS"))
		for _, row := range [][2]string{
			{"/chat", "Start or resume chatting with the AI assistant"},
			{"/workout", "Display your current workout plan"},
			{"/diet", "Display your current diet plan"},
			{"/plans", "Display both your workout and diet plans"},
			{"/profile", "View your current profile information"},
			{"/update", "Update your profile information"},
			{"/history", "Display your recent chat history"},
			{"/help", "Show this help message"},
			{"/exit", "End the session"},
		} {
			fmt.Fprintf(r.w, "%s %s\n", labelStyle.Render(row[0]), row[1])
		}
		r.notices(out.Notices)
	}
}
