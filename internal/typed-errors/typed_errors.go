/*
SPDX-FileCopyrightText: Red Hat

SPDX-License-Identifier: Apache-2.0
*/

package typederrors

import (
	"errors"
	"fmt"
)

// GenericError is an error structure containing common fields to be
// embedded by specific error types defined below
type GenericError struct {
	Message string
	Err     error
}

func (ge GenericError) Error() string {
	if ge.Err != nil {
		return fmt.Sprintf("%s: %s", ge.Message, ge.Err.Error())
	}
	return ge.Message
}

func (ge GenericError) Unwrap() error {
	return ge.Err
}

// InstallError type
type InstallError struct {
	GenericError
}

func NewInstallError(err error, format string, args ...interface{}) error {
	return InstallError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsInstallError(target error) bool {
	var e InstallError
	return errors.As(target, &e)
}

// LoginError type
type LoginError struct {
	GenericError
}

func NewLoginError(err error, format string, args ...interface{}) error {
	return LoginError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsLoginError(target error) bool {
	var e LoginError
	return errors.As(target, &e)
}

// ProcessError type, used when the SteamCMD process can't be started or fails
type ProcessError struct {
	GenericError
}

func NewProcessError(err error, format string, args ...interface{}) error {
	return ProcessError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsProcessError(target error) bool {
	var e ProcessError
	return errors.As(target, &e)
}
