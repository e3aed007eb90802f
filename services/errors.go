package services

import (
	"errors"

	"gorm.io/gorm"
)

// Typed errors the services return. The routes map them onto HTTP statuses;
// nothing below the routes layer knows about status codes.
var (
	// ErrNotFound: the entity addressed by the operation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized: the actor lacks the role or ownership the operation
	// requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrReferential: a foreign-key target was missing at write time.
	ErrReferential = errors.New("referenced entity missing")
	// ErrValidation: malformed input (unknown status, unparseable date...).
	ErrValidation = errors.New("invalid input")
	// ErrConflict: a unique field already exists.
	ErrConflict = errors.New("already exists")
)

// translateDB folds driver-level duplicate-key errors into the taxonomy.
// The stores are opened with TranslateError so both postgres and sqlite
// surface gorm.ErrDuplicatedKey here.
func translateDB(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrReferential
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
