package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MaxImageBytes is the largest accepted decoded image payload.
const MaxImageBytes = 5 * 1024 * 1024

var imageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ValidateQuiz checks a quiz before it is persisted.
func ValidateQuiz(q Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(q.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if q.GameID <= 0 {
		return fmt.Errorf("%w: game is required", ErrValidation)
	}
	if err := ValidateImage(q.CoverImage); err != nil {
		return fmt.Errorf("cover image: %w", err)
	}
	return ValidateQuestions(q.Questions)
}

// ValidateQuestions checks that there is at least one question and that every
// question has text, two or more non-blank options and a valid correct answer.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: add at least one question with two or more options", ErrValidation)
	}
	for i, q := range questions {
		n := i + 1
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrValidation, n)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrValidation, n)
		}
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrValidation, n)
			}
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct answer is out of range", ErrValidation, n)
		}
		if err := ValidateImage(q.Image); err != nil {
			return fmt.Errorf("question %d image: %w", n, err)
		}
	}
	return nil
}

// NumberQuestions assigns ids 1..n in order.
func NumberQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.ID = i + 1
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// ValidateUser checks the fields required to register an account.
func ValidateUser(u User) error {
	if strings.TrimSpace(u.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if u.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	return nil
}

// ValidateImage accepts an empty value, an http(s) link, or a base64 data URL of a
// JPEG, PNG, GIF or WebP image no larger than MaxImageBytes.
func ValidateImage(raw string) error {
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return nil
	}
	header, data, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("%w: image must be a base64 data URL", ErrValidation)
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	supported := false
	for _, t := range imageTypes {
		if mime == t {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("%w: unsupported image format, use JPEG, PNG, GIF or WebP", ErrValidation)
	}
	if base64.StdEncoding.DecodedLen(len(data)) > MaxImageBytes+2 {
		return fmt.Errorf("%w: image must not exceed 5MB", ErrValidation)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("%w: image is not valid base64", ErrValidation)
	}
	if len(decoded) > MaxImageBytes {
		return fmt.Errorf("%w: image must not exceed 5MB", ErrValidation)
	}
	return nil
}
