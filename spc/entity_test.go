package spc

import (
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"testing"
)

func TestArea_update(t *testing.T) {
	t.Run("last changed by uses the unset user when unset", func(t *testing.T) {
		a := newArea(gjson.Parse(`{"id":"1","name":"House","mode":"0","last_set_user_name":"Pelle","last_unset_user_name":"Lisa"}`))
		assert.Equal(t, "Lisa", a.LastChangedBy)

		a.update(gjson.Parse(`{"mode":"1","last_set_user_name":"Pelle","last_unset_user_name":"Lisa"}`), "NL")
		assert.Equal(t, AreaModePartSetA, a.Mode)
		assert.Equal(t, "Pelle", a.LastChangedBy)
	})

	t.Run("last changed by defaults when the user field is missing", func(t *testing.T) {
		a := newArea(gjson.Parse(`{"id":"1","name":"House","mode":"3"}`))
		assert.Equal(t, "N/A", a.LastChangedBy)
	})

	t.Run("clone does not share zone identifiers", func(t *testing.T) {
		a := &Area{ID: "1", ZoneIDs: []string{"1", "2"}}
		c := a.clone()
		c.ZoneIDs[0] = "9"

		assert.Equal(t, "1", a.ZoneIDs[0])
	})
}

func TestZone_update(t *testing.T) {
	t.Run("keeps the type and area and records the sia code", func(t *testing.T) {
		z := newZone("1", gjson.Parse(`{"id":"3","zone_name":"Smoke sensor","area":"1","input":"0","type":"3","status":"0"}`))
		assert.Empty(t, z.LastSIACode)

		z.update(gjson.Parse(`{"input":"4","status":"4","type":"0"}`), "TA")

		assert.Equal(t, ZoneTypeFire, z.Type)
		assert.Equal(t, "1", z.AreaID)
		assert.Equal(t, ZoneInputPIRMasked, z.Input)
		assert.Equal(t, ZoneStatusTamper, z.Status)
		assert.Equal(t, "TA", z.LastSIACode)
		assert.False(t, z.LastUpdate.IsZero())
	})
}
