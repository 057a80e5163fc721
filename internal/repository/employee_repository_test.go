package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "condominio_id", "nome", "cpf", "senha", "cargo", "ativo"})
}

func TestGetByCPF(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEmployeeRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("12345678901").
		WillReturnRows(employeeRows().
			AddRow("f-1", "b-1", "João Porteiro", "12345678901", "$2a$10$hash", "porteiro", true))

	got, err := repo.GetByCPF(context.Background(), "12345678901")
	require.NoError(t, err)
	assert.Equal(t, "João Porteiro", got.Name)
	assert.Equal(t, "porteiro", got.Role)
	assert.True(t, got.Active)
}

func TestGetByCPFNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEmployeeRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM funcionarios WHERE cpf = ?`)).
		WithArgs("00000000000").
		WillReturnRows(employeeRows())

	_, err = repo.GetByCPF(context.Background(), "00000000000")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestCreateDuplicateCPF(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEmployeeRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO funcionarios`)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '12345678901' for key 'funcionarios.cpf'"))

	err = repo.Create(context.Background(), &EmployeeRow{
		BuildingID: "b-1",
		Name:       "João Porteiro",
		CPF:        "12345678901",
		Senha:      "$2a$10$hash",
		Role:       "porteiro",
		Active:     true,
	})
	assert.ErrorIs(t, err, ErrCPFExists)
}

func TestDeactivateAlreadyInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewEmployeeRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE funcionarios SET ativo = 0 WHERE id = ? AND ativo = 1`)).
		WithArgs("f-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Deactivate(context.Background(), "f-1")
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}
