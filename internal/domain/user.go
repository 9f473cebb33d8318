// Package domain contains entity without logic, just meta-data
package domain

type UserID int64

type User struct {
	ID   UserID `json:"userid"`
	Name string `json:"name"`
}
