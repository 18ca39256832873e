package model_test

import (
	"reflect"
	"testing"

	"hms/infras/otel/mocks"
	"hms/internal/domains/request/model"
	"hms/shared/constant"
	"hms/shared/repository"

	"github.com/stretchr/testify/assert"
)

func collectDBTags(reflectType reflect.Type) []string {
	tags := []string{}

	for i := range reflectType.NumField() {
		field := reflectType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			tags = append(tags, collectDBTags(field.Type)...)

			continue
		}

		tags = append(tags, field.Tag.Get("db"))
	}

	return tags
}

// Rows must map losslessly: the column lists the generic repository derives
// from db tags have to cover every model field, with no untagged or duplicate
// columns silently dropping data on insert or select.
func TestBookingRequestColumnMapping(t *testing.T) {
	repo := repository.NewRepository[model.BookingRequest](model.EntityName, model.TableName, model.FieldID, nil, mocks.NewOtel())

	tags := collectDBTags(reflect.TypeOf(model.BookingRequest{}))

	seen := map[string]bool{}
	for _, tag := range tags {
		assert.NotEmpty(t, tag, "field without db tag would be dropped from the row mapping")
		assert.False(t, seen[tag], "duplicate column %q", tag)

		seen[tag] = true
	}

	assert.Equal(t, tags, repo.InsertColumns)

	for _, col := range []string{
		model.FieldUserID,
		model.FieldStatus,
		model.FieldPriority,
		model.FieldReceptionNote,
		model.FieldAdminNote,
		model.FieldDocuments,
		constant.FieldCreatedAt,
		constant.FieldModifiedAt,
		constant.FieldCreatedBy,
		constant.FieldModifiedBy,
	} {
		assert.Contains(t, repo.InsertColumns, col)
	}
}
