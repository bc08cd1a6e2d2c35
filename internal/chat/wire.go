// ABOUTME: JSON request and response bodies of the conversation backend REST API
// ABOUTME: Shared by the HTTP client and the development server handlers

package chat

// User is the body of GET /users/me.
type User struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email,omitempty"`
	LearningProfile LearningProfile `json:"learning_profile"`
}

// LearningProfile holds the language settings of a user.
type LearningProfile struct {
	NativeLanguage string `json:"native_language"`
	TargetLanguage string `json:"target_language"`
	CEFRLevel      string `json:"cefr_level"`
}

// Profile converts the wire user into a Profile, filling defaults.
func (u *User) Profile() Profile {
	p := Profile{
		UserID:         u.ID,
		Username:       u.Username,
		NativeLanguage: u.LearningProfile.NativeLanguage,
		TargetLanguage: u.LearningProfile.TargetLanguage,
		Level:          u.LearningProfile.CEFRLevel,
	}
	if p.NativeLanguage == "" {
		p.NativeLanguage = DefaultNativeLanguage
	}
	if p.TargetLanguage == "" {
		p.TargetLanguage = DefaultTargetLanguage
	}
	if p.Level == "" {
		p.Level = DefaultLevel
	}
	return p
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is returned by login. Refresh returns only Access.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// SendRequest is the body of POST /users/{uid}/ai-friends/{fid}/messages.
type SendRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
	NativeLanguage string `json:"native_language"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// TranslateResponse is the response of POST /translate.
type TranslateResponse struct {
	Translation string `json:"translation"`
}

// CorrectRequest is the body of POST /correct.
type CorrectRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

// FeedbackResponse is the response of POST /feedback.
type FeedbackResponse struct {
	Feedback string `json:"feedback"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
