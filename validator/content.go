package validator

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/yomuhub/yomu/model"
)

const maxCommentLength = 4000

func ValidateCommentCreateRequest(create *model.CommentCreateRequest) error {
	if create == nil {
		return errors.New("comment request is nil")
	}
	if create.MangaID <= 0 {
		return errors.New("manga id is missing")
	}
	return ValidateCommentContent(create.Content)
}

func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("comment content is empty")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return errors.New("comment content is too long")
	}
	return nil
}

func ValidateListCreateRequest(create *model.UserListCreateRequest) error {
	if create == nil {
		return errors.New("list request is nil")
	}
	if strings.TrimSpace(create.Name) == "" {
		return errors.New("list name is empty")
	}
	return nil
}

func ValidateListEntryRequest(entry *model.UserListEntryRequest) error {
	if entry == nil {
		return errors.New("list entry request is nil")
	}
	if entry.MangaID <= 0 {
		return errors.New("manga id is missing")
	}
	if entry.Rating != nil && (*entry.Rating < 1 || *entry.Rating > 10) {
		return errors.New("rating must be between 1 and 10")
	}
	return nil
}
