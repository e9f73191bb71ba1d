package http

import (
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/dmitrijs2005/userdirectory/internal/server/services"
	"github.com/google/uuid"
)

// UserDTO is the public view of a user. It never carries the password digest.
type UserDTO struct {
	ID                string  `json:"id"`
	UserName          string  `json:"userName"`
	FullName          *string `json:"fullName"`
	EMail             *string `json:"eMail"`
	MobilePhoneNumber *string `json:"mobilePhoneNumber"`
	Language          string  `json:"language"`
	Culture           string  `json:"culture"`
}

// UserWithPasswordDTO is accepted on create and update.
type UserWithPasswordDTO struct {
	UserDTO
	Password string `json:"password"`
}

// VerifyDTO is the body of a password verification request.
type VerifyDTO struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func newUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:                u.ID.String(),
		UserName:          u.UserName,
		FullName:          u.FullName,
		EMail:             u.EMail,
		MobilePhoneNumber: u.MobilePhoneNumber,
		Language:          u.Language,
		Culture:           u.Culture,
	}
}

func newUserDTOs(users []*models.User) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, newUserDTO(u))
	}
	return out
}

func (d UserWithPasswordDTO) toInput(id uuid.UUID) services.UserInput {
	return services.UserInput{
		ID:                id,
		UserName:          d.UserName,
		FullName:          d.FullName,
		EMail:             d.EMail,
		MobilePhoneNumber: d.MobilePhoneNumber,
		Language:          d.Language,
		Culture:           d.Culture,
		Password:          d.Password,
	}
}
