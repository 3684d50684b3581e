package user

type User struct {
	ID    uint
	Name  string
	Email string
}
