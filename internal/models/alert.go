package models

// Alert is the banner shown above a form after a failed attempt.
type Alert struct {
	Type    string // bootstrap style: "danger", "warning", "success"
	Intro   string
	Message string
}

var (
	AlertEmptyFields = Alert{Type: "danger", Intro: "Empty Fields!", Message: "Please enter username & password."}
	AlertBadLogin    = Alert{Type: "danger", Intro: "Wrong Credentials!", Message: "Please enter correct username & password."}
	AlertBadRegister = Alert{Type: "danger", Intro: "User already exist!", Message: "Please enter unique username & password."}
	AlertBadPassword = Alert{Type: "danger", Intro: "Invalid Password!", Message: "Please enter a password of at most 72 bytes."}
)
