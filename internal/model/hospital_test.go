package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePOC(t *testing.T) {
	t.Run("drops blank pairs and trims", func(t *testing.T) {
		got, err := NormalizePOC([]POC{{Name: "  Dr. Rao ", Phone: " 98450 "}, {Name: " ", Phone: ""}})
		require.NoError(t, err)
		assert.Equal(t, []POC{{Name: "Dr. Rao", Phone: "98450"}}, got)
	})

	t.Run("nothing left", func(t *testing.T) {
		_, err := NormalizePOC([]POC{{Name: "", Phone: "  "}})
		require.Error(t, err)
		assert.Equal(t, "At least one point of contact (POC) is required.", err.Error())
		assert.True(t, IsValidation(err))
	})

	t.Run("half filled", func(t *testing.T) {
		_, err := NormalizePOC([]POC{{Name: "A", Phone: "1"}, {Name: "B"}})
		require.Error(t, err)
		assert.Equal(t, "Each POC must have both name and phone number.", err.Error())
	})
}

func TestComposeAndSplitPincode(t *testing.T) {
	addr := ComposeAddress(" 12 MG Road ", "560001")
	assert.Equal(t, "12 MG Road, 560001", addr)

	line, pin := SplitPincode(addr)
	assert.Equal(t, "12 MG Road", line)
	assert.Equal(t, "560001", pin)

	line, pin = SplitPincode("No code here")
	assert.Equal(t, "No code here", line)
	assert.Empty(t, pin)

	assert.Equal(t, "560001", ComposeAddress("", "560001"))
	assert.Equal(t, "Ward 4", ComposeAddress("Ward 4", ""))
}

func TestHospitalMatchesQuery(t *testing.T) {
	city := "Pune"
	h := Hospital{Name: "City Care", City: &city}

	assert.True(t, h.MatchesQuery(""))
	assert.True(t, h.MatchesQuery("pune"))
	assert.True(t, h.MatchesQuery("CARE"))
	assert.False(t, h.MatchesQuery("mumbai"))
}
