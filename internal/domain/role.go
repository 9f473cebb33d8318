package domain

type ChatRole string

const (
	RoleTutor ChatRole = "tutor"
	RoleTutee ChatRole = "tutee"
)

func (r ChatRole) Valid() bool {
	return r == RoleTutor || r == RoleTutee
}
