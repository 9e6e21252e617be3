package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_ZeroValueIsUnset(t *testing.T) {
	var f Field[string]

	assert.False(t, f.IsSet())
	assert.False(t, f.IsNull())
	_, ok := f.Get()
	assert.False(t, ok)
}

func TestField_SetHoldsValue(t *testing.T) {
	f := Set("rack1")

	assert.True(t, f.IsSet())
	assert.False(t, f.IsNull())
	v, ok := f.Get()
	require.True(t, ok)
	assert.Equal(t, "rack1", v)
	assert.Equal(t, "rack1", f.SQLValue())
}

func TestField_SetNullIsSetButNotAValue(t *testing.T) {
	f := SetNull[int64]()

	assert.True(t, f.IsSet())
	assert.True(t, f.IsNull())
	_, ok := f.Get()
	assert.False(t, ok)
	assert.Nil(t, f.SQLValue())
}

func TestBuilder_FieldsOmitsUnset(t *testing.T) {
	fields := NewZoneBuilder().WithName("rack-zone").Fields()

	assert.Equal(t, Fields{"name": "rack-zone"}, fields)
}

func TestBuilder_ExplicitNullSurvivesToFields(t *testing.T) {
	fields := NewNodeBuilder().WithoutOwner().Fields()

	v, present := fields["owner_id"]
	require.True(t, present)
	assert.Nil(t, v)
}

func TestBuilder_UnsetFieldAbsentFromFields(t *testing.T) {
	fields := NewNodeBuilder().WithHostname("node1").Fields()

	_, present := fields["owner_id"]
	assert.False(t, present)
}

func TestZoneBuilder_ValidateRejectsEmptyName(t *testing.T) {
	err := NewZoneBuilder().WithName("").Validate()
	assert.Error(t, err)
}

func TestZoneBuilder_ValidateSkipsUnsetFields(t *testing.T) {
	assert.NoError(t, NewZoneBuilder().WithDescription("just a description").Validate())
}

func TestNodeBuilder_ValidateRejectsUnknownStatus(t *testing.T) {
	err := NewNodeBuilder().WithStatus("melting").Validate()
	assert.Error(t, err)
}

func TestUserBuilder_ValidateRejectsBadEmail(t *testing.T) {
	err := NewUserBuilder().WithEmail("not-an-email").Validate()
	assert.Error(t, err)
}

func TestUserBuilder_ValidateAcceptsEmptyEmail(t *testing.T) {
	assert.NoError(t, NewUserBuilder().WithUsername("admin").WithEmail("").Validate())
}
