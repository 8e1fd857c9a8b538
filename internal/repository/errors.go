package repository

import "errors"

// ErrGuardFailed means a conditional update matched no row: the guard did not hold
// at write time, or the row does not exist.
var ErrGuardFailed = errors.New("conditional update matched no rows")

func guarded(rowsAffected int64, err error) error {
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGuardFailed
	}
	return nil
}
