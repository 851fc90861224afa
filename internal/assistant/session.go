package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/psps16/fitness-ai/internal/auth"
	"github.com/psps16/fitness-ai/internal/llm"
	"github.com/psps16/fitness-ai/internal/models"
	"github.com/psps16/fitness-ai/internal/storage"
)

// Mode is the controller's current state; it governs how input is routed.
type Mode int

const (
	ModeAuth Mode = iota
	ModeOnboarding
	ModeCommand
	ModeChat
)

func (m Mode) String() string {
	switch m {
	case ModeAuth:
		return "auth"
	case ModeOnboarding:
		return "onboarding"
	case ModeCommand:
		return "command"
	case ModeChat:
		return "chat"
	}
	return "unknown"
}

// CommandEscape distinguishes command tokens from free chat text.
const CommandEscape = "/"

// Command is the closed set of recognized command tokens.
type Command int

const (
	CmdUnknown Command = iota
	CmdChat
	CmdWorkout
	CmdDiet
	CmdPlans
	CmdHistory
	CmdProfile
	CmdUpdate
	CmdHelp
	CmdExit
)

// ParseCommand maps an input line onto the command enum. The second return is
// false when the line is not a command at all (no escape marker).
func ParseCommand(line string) (Command, bool) {
	token := strings.ToLower(strings.TrimSpace(line))
	if !strings.HasPrefix(token, CommandEscape) {
		return CmdUnknown, false
	}
	switch token {
	case "/chat":
		return CmdChat, true
	case "/workout":
		return CmdWorkout, true
	case "/diet":
		return CmdDiet, true
	case "/plans":
		return CmdPlans, true
	case "/history":
		return CmdHistory, true
	case "/profile":
		return CmdProfile, true
	case "/update":
		return CmdUpdate, true
	case "/help":
		return CmdHelp, true
	case "/exit":
		return CmdExit, true
	}
	return CmdUnknown, true
}

// OutputKind tags the payload shape handed to the presentation layer.
type OutputKind int

const (
	OutMessage OutputKind = iota
	OutMarkdown
	OutPlans
	OutHistory
	OutProfile
	OutHelp
	OutPrompt
	OutExit
)

// Output is the structured result of one handled input line. The controller
// never prints; rendering is the surface's job.
type Output struct {
	Kind    OutputKind
	Text    string
	Err     bool
	Secret  bool // prompt should mask the next input line
	Plans   []models.Plan
	History []models.Message
	Profile *models.UserProfile
	Notices []string
}

func message(text string) Output    { return Output{Kind: OutMessage, Text: text} }
func errMessage(text string) Output { return Output{Kind: OutMessage, Text: text, Err: true} }
func prompt(text string) Output     { return Output{Kind: OutPrompt, Text: text} }

// Session is the transient per-login state: current mode, the authenticated
// user, and read-through caches. It lives for one interactive run and is
// never persisted.
type Session struct {
	Mode Mode
	User models.User
}

// CredentialVerifier is the opaque credential collaborator.
type CredentialVerifier interface {
	Verify(username, secret string) (models.User, error)
	Exists(username string) (bool, error)
	Register(username, secret string, profile models.UserProfile) (models.User, error)
}

// Chatter is the conversational slice of the model collaborator.
type Chatter interface {
	Chat(ctx context.Context, system string, history []llm.ChatTurn, userText string) (string, error)
}

type authStep int

const (
	authAskUsername authStep = iota
	authAskPassword
)

// Controller owns the mode state machine. Exactly one operation is in flight
// at a time; Handle is not safe for concurrent use and does not need to be.
//
// Errors returned from Handle are fatal (persistence boundary failures);
// everything recoverable becomes a user-facing Output and the controller
// stays in its current state.
type Controller struct {
	verifier   CredentialVerifier
	profiles   ProfileStore
	plans      PlanStore
	historyLog HistoryStore
	assembler  *Assembler
	synth      *Synthesizer
	classifier FeedbackClassifier
	chat       Chatter
	log        *zap.Logger

	session Session

	authState       authStep
	pendingUsername string
	onboarding      *onboardingFlow
	update          *updateFlow
}

// ControllerDeps wires a Controller.
type ControllerDeps struct {
	Verifier   CredentialVerifier
	Profiles   ProfileStore
	Plans      PlanStore
	History    HistoryStore
	Assembler  *Assembler
	Synth      *Synthesizer
	Classifier FeedbackClassifier
	Chat       Chatter
	Log        *zap.Logger
}

func NewController(deps ControllerDeps) *Controller {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Controller{
		verifier:   deps.Verifier,
		profiles:   deps.Profiles,
		plans:      deps.Plans,
		historyLog: deps.History,
		assembler:  deps.Assembler,
		synth:      deps.Synth,
		classifier: classifier,
		chat:       deps.Chat,
		log:        log,
		session:    Session{Mode: ModeAuth},
	}
}

// Mode exposes the current state, mainly for the surface and tests.
func (c *Controller) Mode() Mode { return c.session.Mode }

// Greeting returns the first prompt of a fresh session.
func (c *Controller) Greeting() Output {
	return prompt("Username (new or existing):")
}

// Handle routes one input line according to the current mode.
func (c *Controller) Handle(ctx context.Context, line string) (Output, error) {
	switch c.session.Mode {
	case ModeAuth:
		return c.handleAuth(line)
	case ModeOnboarding:
		return c.handleOnboarding(ctx, line)
	case ModeCommand:
		return c.handleCommand(ctx, line)
	case ModeChat:
		return c.handleChat(ctx, line)
	}
	return Output{}, fmt.Errorf("assistant: unhandled mode %v", c.session.Mode)
}

func (c *Controller) handleAuth(line string) (Output, error) {
	switch c.authState {
	case authAskUsername:
		if cmd, ok := ParseCommand(line); ok && cmd == CmdExit {
			return Output{Kind: OutExit, Text: "Goodbye!"}, nil
		}
		username := strings.TrimSpace(line)
		if username == "" {
			out := errMessage("Username cannot be empty.")
			out.Notices = []string{"Username (new or existing):"}
			return out, nil
		}
		c.pendingUsername = username
		c.authState = authAskPassword
		out := prompt("Password:")
		out.Secret = true
		return out, nil

	case authAskPassword:
		username := c.pendingUsername
		c.authState = authAskUsername
		c.pendingUsername = ""

		if line == "" {
			out := errMessage("Password cannot be empty.")
			out.Notices = []string{"Username (new or existing):"}
			return out, nil
		}

		exists, err := c.verifier.Exists(username)
		if err != nil {
			return Output{}, err
		}
		if !exists {
			// New account: collect the profile, register at completion.
			c.onboarding = newOnboardingFlow(username, line)
			c.session.Mode = ModeOnboarding
			out := c.onboarding.prompt()
			out.Notices = []string{fmt.Sprintf("Welcome %s! Let's create your profile.", username)}
			return out, nil
		}

		user, err := c.verifier.Verify(username, line)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrEmptyCredentials) {
				c.log.Info("authentication failed", zap.String("username", username))
				out := errMessage("Invalid username or password.")
				out.Notices = []string{"Username (new or existing):"}
				return out, nil
			}
			return Output{}, err
		}

		c.session.User = user
		c.session.Mode = ModeCommand
		c.log.Info("session started", zap.String("username", username))
		return message(fmt.Sprintf("Welcome back, %s! Type /help to see available commands.", user.Profile.Name)), nil
	}
	return Output{}, fmt.Errorf("assistant: unhandled auth step %d", c.authState)
}

func (c *Controller) handleCommand(ctx context.Context, line string) (Output, error) {
	if c.update != nil {
		return c.handleUpdateAnswer(ctx, line)
	}

	cmd, isCommand := ParseCommand(line)
	if !isCommand {
		if strings.TrimSpace(line) == "" {
			return message(""), nil
		}
		return errMessage("Unknown command. Type /chat to talk to your assistant or /help for the command list."), nil
	}
	return c.dispatch(ctx, cmd)
}

func (c *Controller) handleChat(ctx context.Context, line string) (Output, error) {
	if _, isCommand := ParseCommand(line); isCommand {
		// Command escape exits chat; the token is dispatched as a command and
		// no model call happens for this input.
		c.session.Mode = ModeCommand
		return c.handleCommand(ctx, line)
	}
	if strings.TrimSpace(line) == "" {
		return message(""), nil
	}
	return c.chatTurn(ctx, line)
}

func (c *Controller) dispatch(ctx context.Context, cmd Command) (Output, error) {
	user := c.session.User
	switch cmd {
	case CmdChat:
		c.session.Mode = ModeChat
		return message("Chat mode activated. Talk freely; any /command returns you to command mode."), nil

	case CmdWorkout:
		return c.showPlans(user.ID, models.PlanWorkout)

	case CmdDiet:
		return c.showPlans(user.ID, models.PlanDiet)

	case CmdPlans:
		return c.showPlans(user.ID, models.PlanWorkout, models.PlanDiet)

	case CmdHistory:
		history, err := c.historyLog.RecentMessages(user.ID, 20)
		if err != nil {
			return Output{}, err
		}
		if len(history) == 0 {
			return message("No chat history yet."), nil
		}
		return Output{Kind: OutHistory, History: history}, nil

	case CmdProfile:
		profile := user.Profile
		return Output{Kind: OutProfile, Profile: &profile}, nil

	case CmdUpdate:
		c.update = newUpdateFlow(user.Profile)
		return c.update.prompt(), nil

	case CmdHelp:
		return Output{Kind: OutHelp}, nil

	case CmdExit:
		c.log.Info("session ended", zap.String("username", user.Username))
		return Output{Kind: OutExit, Text: "Thank you for using FitAI! Goodbye!"}, nil
	}
	return errMessage("Unknown command. Type /help to see available commands."), nil
}

func (c *Controller) showPlans(userID string, kinds ...models.PlanKind) (Output, error) {
	var out Output
	out.Kind = OutPlans
	for _, kind := range kinds {
		plan, err := c.plans.GetPlan(userID, kind)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				out.Notices = append(out.Notices, fmt.Sprintf("No %s generated yet.", kind.Title()))
				continue
			}
			return Output{}, err
		}
		out.Plans = append(out.Plans, plan)
	}
	if len(out.Plans) == 0 && len(out.Notices) > 0 {
		return errMessage(strings.Join(out.Notices, " ")), nil
	}
	return out, nil
}

// chatTurn runs one free-text exchange: inline profile updates, context
// assembly, the model call, feedback classification with plan revision, and
// the history append. On a model failure nothing is appended, so the history
// only ever contains complete exchanges.
func (c *Controller) chatTurn(ctx context.Context, text string) (Output, error) {
	user := &c.session.User
	var notices []string

	if updated, changes := ParseProfileUpdates(user.Profile, text); len(changes) > 0 {
		if err := c.profiles.UpdateProfile(user.ID, updated); err != nil {
			return Output{}, err
		}
		user.Profile = updated
		notices = append(notices, "Profile updated: "+strings.Join(changes, ", ")+".")
		c.log.Info("inline profile update", zap.String("username", user.Username), zap.Strings("changes", changes))
	}

	cx, err := c.assembler.Build(user.Username)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return errMessage("Your profile could not be loaded; this session cannot continue the chat."), nil
		}
		return Output{}, err
	}

	reply, err := c.chat.Chat(ctx, cx.SystemPrompt(), cx.HistoryTurns(), text)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) {
			c.log.Warn("chat turn timed out", zap.String("username", user.Username))
			return errMessage("The assistant took too long to answer. This turn was dropped; please try again."), nil
		}
		c.log.Error("chat turn failed", zap.Error(err))
		return errMessage("The assistant could not answer right now. Please try again."), nil
	}

	for _, kind := range c.classifier.Classify(text) {
		notice, err := c.reviseFromFeedback(ctx, user, kind, text)
		if err != nil {
			return Output{}, err
		}
		notices = append(notices, notice)
	}

	err = c.historyLog.AppendMessages(user.ID,
		models.Message{Role: models.RoleUser, Text: text},
		models.Message{Role: models.RoleAssistant, Text: reply},
	)
	if err != nil {
		return Output{}, err
	}

	return Output{Kind: OutMarkdown, Text: reply, Notices: notices}, nil
}

func (c *Controller) reviseFromFeedback(ctx context.Context, user *models.User, kind models.PlanKind, feedback string) (string, error) {
	current, err := c.plans.GetPlan(user.ID, kind)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Nothing to revise yet; create the first plan instead.
			plan, genErr := c.synth.Generate(ctx, user.ID, user.Profile, kind)
			if genErr != nil {
				if errors.Is(genErr, ErrSynthesisFailed) {
					return fmt.Sprintf("Could not generate your %s; it is unchanged.", kind.Title()), nil
				}
				return "", genErr
			}
			return fmt.Sprintf("%s created (revision %d). View it with /%s.", plan.Kind.Title(), plan.Revision, kind), nil
		}
		return "", err
	}

	plan, err := c.synth.Revise(ctx, current, feedback)
	if err != nil {
		if errors.Is(err, ErrSynthesisFailed) {
			c.log.Warn("plan revision failed", zap.String("kind", string(kind)), zap.Error(err))
			return fmt.Sprintf("Could not revise your %s; it is unchanged at revision %d.", kind.Title(), current.Revision), nil
		}
		return "", err
	}
	return fmt.Sprintf("%s updated to revision %d. View it with /%s.", plan.Kind.Title(), plan.Revision, kind), nil
}
