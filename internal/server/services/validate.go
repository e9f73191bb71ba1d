package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

func validateUser(in UserInput) error {
	if in.ID == uuid.Nil {
		return invalid("id is required")
	}
	if err := required("userName", in.UserName, models.MaxUserNameLength); err != nil {
		return err
	}
	if err := required("language", in.Language, models.MaxLanguageLength); err != nil {
		return err
	}
	if err := required("culture", in.Culture, models.MaxCultureLength); err != nil {
		return err
	}
	if err := optional("fullName", in.FullName, models.MaxFullNameLength); err != nil {
		return err
	}
	if err := optional("eMail", in.EMail, models.MaxEMailLength); err != nil {
		return err
	}
	if err := optional("mobilePhoneNumber", in.MobilePhoneNumber, models.MaxMobilePhoneLength); err != nil {
		return err
	}
	if !isCulture(in.Culture) {
		return invalid(fmt.Sprintf("culture %q is not a valid language tag", in.Culture))
	}
	return nil
}

// isCulture accepts well-formed BCP 47 tags such as "en-US" or "lv".
func isCulture(s string) bool {
	tag, err := language.Parse(s)
	return err == nil && tag != language.Und
}

func required(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field + " is required")
	}
	if utf8.RuneCountInString(v) > max {
		return invalid(fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return nil
}

func optional(field string, v *string, max int) error {
	if v != nil && utf8.RuneCountInString(*v) > max {
		return invalid(fmt.Sprintf("%s exceeds %d characters", field, max))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}
