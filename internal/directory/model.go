package directory

import (
	"bytes"
	"encoding/json"
	"strings"
)

// User is an attendee record as held by the directory service.
type User struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	LinkedIn string   `json:"linkedin,omitempty"`
	Points   int      `json:"points"`
	Friends  []Friend `json:"friends"`
}

// Friend references another attendee's identity. It carries no points and no
// nested friend list.
type Friend struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// AsFriend projects the user onto its Friend identity.
func (u User) AsFriend() Friend {
	return Friend{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, LinkedIn: u.LinkedIn}
}

// flexID accepts ids encoded either as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

type wireFriend struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}

type wireUser struct {
	ID       flexID       `json:"id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	LinkedIn string       `json:"linkedin"`
	Points   *float64     `json:"points"`
	Friends  []wireFriend `json:"friends"`
}

func (w wireUser) user() User {
	u := User{
		ID:       string(w.ID),
		Name:     w.Name,
		Email:    w.Email,
		Phone:    w.Phone,
		LinkedIn: w.LinkedIn,
		Friends:  make([]Friend, 0, len(w.Friends)),
	}
	if w.Points != nil && *w.Points > 0 {
		u.Points = int(*w.Points)
	}
	for _, f := range w.Friends {
		u.Friends = append(u.Friends, Friend{
			ID:       string(f.ID),
			Name:     f.Name,
			Email:    f.Email,
			Phone:    f.Phone,
			LinkedIn: f.LinkedIn,
		})
	}
	return u
}

// EmbeddedError reports whether a response body carries a "message" field
// mentioning "Error". The directory sometimes answers 200 with a failure
// message inside an otherwise successful envelope.
func EmbeddedError(body []byte) (string, bool) {
	var envelope struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	msg, ok := envelope.Message.(string)
	if !ok {
		return "", false
	}
	return msg, strings.Contains(msg, "Error")
}
