// Package repository contains data access logic separated from HTTP
// handlers and workflows. Each repository wraps hand-written SQL over a
// *sql.DB handle; sentinel errors let higher layers distinguish failure
// scenarios without string matching.
package repository

import "errors"

// ErrBuildingNotFound is returned when a building row does not exist or
// is soft-deleted.
var ErrBuildingNotFound = errors.New("building not found")

// ErrResidentNotFound is returned when a resident row does not exist.
var ErrResidentNotFound = errors.New("resident not found")

// ErrEmployeeNotFound is returned when an employee row does not exist.
var ErrEmployeeNotFound = errors.New("employee not found")

// ErrDeliveryNotFound is returned when a delivery row does not exist.
var ErrDeliveryNotFound = errors.New("delivery not found")

// ErrNotPending is returned when a status transition requires a pending
// delivery and the row is already picked up or cancelled. Pickup
// confirmation relies on this to keep status transitions one-way.
var ErrNotPending = errors.New("delivery is not pending")

// ErrCPFExists is returned when creating an employee with a CPF that is
// already registered.
var ErrCPFExists = errors.New("cpf already exists")
