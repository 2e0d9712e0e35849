package handler

import (
	"testing"

	"github.com/Fedevops/tyr-crm-ai-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// Accounts without a CNPJ must insert NULL: the tenant+cnpj unique index
// allows repeated NULLs, while a second '' in the same tenant would
// collide. Lead conversion creates accounts the same way.
func TestAccountCreateWithoutCNPJInsertsNull(t *testing.T) {
	db, _ := mockDB(t)

	account := model.Account{
		TenantID:    1,
		CreatedByID: 1,
		Name:        "Acme Ltda",
		CNPJ:        optString(""),
	}
	stmt := db.Session(&gorm.Session{DryRun: true}).Create(&account).Statement

	assert.Contains(t, stmt.SQL.String(), "cnpj")
	assert.Contains(t, stmt.Vars, (*string)(nil))
}
