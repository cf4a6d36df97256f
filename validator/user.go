package validator // import "github.com/yomuhub/yomu/validator"

import (
	"github.com/pkg/errors"

	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
	"github.com/yomuhub/yomu/util"
)

func ValidateSignupRequest(s *store.Store, signup *model.UserSignupRequest) error {
	if signup == nil {
		return errors.New("signup request is nil")
	}
	if signup.Username == "" {
		return errors.New("username is empty")
	}
	if !util.UIDMatcher.MatchString(signup.Username) {
		return errors.New("username is invalid")
	}
	if signup.Password == "" {
		return errors.New("password is empty")
	}
	if existing, _ := s.GetUser(&model.FindUser{Username: &signup.Username}); existing != nil {
		return errors.New("Username already exists")
	}
	return validatePassword(signup.Password)
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password is too short")
	}
	return nil
}
