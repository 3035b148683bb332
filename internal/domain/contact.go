package domain

import "time"

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	Handled   bool
	RemoteIP  string
	CreatedAt time.Time
}
