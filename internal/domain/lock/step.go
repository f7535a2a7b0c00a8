package lock

// Step - экран, который должен показать интерфейс поверхности.
type Step int

const (
	StepLoading Step = iota
	StepNoLogin
	StepAskToSetPassword
	StepShowLogin
	StepNoLoginPeriod
	StepMigratePassword
	StepForgotPassword
	StepResetWizard
	StepNoAccounts
	StepError
)

var stepNames = map[Step]string{
	StepLoading:          "loading",
	StepNoLogin:          "no-login",
	StepAskToSetPassword: "ask-to-set-password",
	StepShowLogin:        "show-login",
	StepNoLoginPeriod:    "no-login-period",
	StepMigratePassword:  "migrate-password",
	StepForgotPassword:   "forgot-password",
	StepResetWizard:      "reset-wizard",
	StepNoAccounts:       "no-accounts",
	StepError:            "error",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State - снимок сессии для интерфейса.
type State struct {
	Locked        bool `json:"locked"`
	Step          Step `json:"step"`
	PasswordError bool `json:"password_error"`
}
