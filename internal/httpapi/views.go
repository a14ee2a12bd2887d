package httpapi

import (
	"time"

	"appcatalog/internal/ports"
	"appcatalog/internal/usecase/account"
)

type appView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Embed     string    `json:"embed"`
	Approval  string    `json:"approval"`
	Privacy   string    `json:"privacy"`
	Platforms []string  `json:"platforms"`
	Grades    []string  `json:"grades"`
	Subjects  []string  `json:"subjects"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newAppView(app ports.App) appView {
	return appView{
		ID:        app.ID,
		Name:      app.Name,
		URL:       app.URL,
		Embed:     app.Embed,
		Approval:  string(app.Approval),
		Privacy:   string(app.Privacy),
		Platforms: toStrings(app.Platforms),
		Grades:    toStrings(app.Grades),
		Subjects:  toStrings(app.Subjects),
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}

func newAppViews(apps []ports.App) []appView {
	out := make([]appView, 0, len(apps))
	for _, app := range apps {
		out = append(out, newAppView(app))
	}
	return out
}

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	IsEditor bool   `json:"isEditor"`
	IsAdmin  bool   `json:"isAdmin"`
}

func newUserView(user ports.User) userView {
	return userView{
		ID:       user.ID,
		Email:    user.Email,
		IsEditor: user.IsEditor,
		IsAdmin:  user.IsAdmin,
	}
}

type sessionView struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	User      userView   `json:"user"`
}

func newSessionView(session account.Session) sessionView {
	view := sessionView{Token: session.Token, User: newUserView(session.User)}
	if !session.ExpiresAt.IsZero() {
		expiresAt := session.ExpiresAt
		view.ExpiresAt = &expiresAt
	}
	return view
}

func toStrings[E ~string](values []E) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, string(value))
	}
	return out
}
