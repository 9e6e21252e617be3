package model

import "fmt"

func fieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}
