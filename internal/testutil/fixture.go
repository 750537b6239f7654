// Package testutil holds the canonical fixture shared by engine, store and
// handler tests: one model with a field per supported kind and three rows
// with known values.
package testutil

import (
	"time"

	"github.com/crudr/crudr/pkg/schema"
)

// TestModel declares the fixture model: one field per field kind.
func TestModel(opts ...schema.ModelOption) *schema.Model {
	return schema.MustNewModel("api_test_model", []schema.FieldSpec{
		{Name: "tf_text", Kind: schema.KindText},
		{Name: "tf_integer", Kind: schema.KindInteger, Nullable: true},
		{Name: "tf_datetime", Kind: schema.KindDatetime},
		{Name: "tf_boolean", Kind: schema.KindBoolean},
	}, opts...)
}

// TestModelFK declares a child model referencing TestModel rows.
func TestModelFK() *schema.Model {
	return schema.MustNewModel("api_test_model_fk", []schema.FieldSpec{
		{Name: "tf_foreign_key", Kind: schema.KindForeignKey},
	})
}

// RelItems is the prefetch relation from TestModel to TestModelFK.
func RelItems() schema.Relation {
	return schema.Relation{Name: "rel_items", Model: "api_test_model_fk", FKField: "tf_foreign_key"}
}

// Rows returns the three fixture rows. Values are kind-typed the way stores
// hold them.
func Rows() []map[string]any {
	return []map[string]any{
		{
			"tf_text":     "Test field 1",
			"tf_integer":  int64(10),
			"tf_datetime": time.Date(2016, 5, 5, 11, 0, 0, 0, time.UTC),
			"tf_boolean":  true,
		},
		{
			"tf_text":     "Test field 2",
			"tf_integer":  int64(20),
			"tf_datetime": time.Date(2016, 1, 10, 12, 0, 0, 0, time.UTC),
			"tf_boolean":  true,
		},
		{
			"tf_text":     "Test field 3",
			"tf_integer":  int64(-10),
			"tf_datetime": time.Date(2016, 9, 15, 12, 0, 0, 0, time.UTC),
			"tf_boolean":  false,
		},
	}
}
