package device

import "errors"

// ErrUnknownCommand is returned for payloads that are not a device command.
var ErrUnknownCommand = errors.New("device: unknown command")
