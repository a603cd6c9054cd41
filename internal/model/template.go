// internal/model/template.go
package model

import "time"

type EmailTemplate struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	Body      string    `db:"body" json:"body"`
	HTMLBody  string    `db:"html_body" json:"html_body,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
