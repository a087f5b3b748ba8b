package codec

import (
	"encoding/json"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/types"
)

func TestEncode_FixedKeysAndNulls(t *testing.T) {
	email := "ada@x.com"
	body, err := json.Marshal(Encode(types.Student{ID: 1, Name: "Ada", Age: 30, Email: &email}))
	require.NoError(t, err)

	assert.Equal(t, `{"id":1,"name":"Ada","age":30,"grade":null,"email":"ada@x.com"}`, string(body))
}

func TestEncodeList_EmptyIsArray(t *testing.T) {
	body, err := json.Marshal(EncodeList(nil))
	require.NoError(t, err)

	assert.Equal(t, `[]`, string(body))
}

func TestDecodeStudent_IgnoresIDAndUnknownKeys(t *testing.T) {
	in, err := DecodeStudent(strings.NewReader(`{"id":42,"name":"Ada","age":30,"nickname":"A"}`))
	require.NoError(t, err)

	assert.Equal(t, "Ada", in.Name)
	require.NotNil(t, in.Age)
	assert.Equal(t, 30, *in.Age)
	assert.Nil(t, in.Grade)
	assert.Nil(t, in.Email)
}

func TestDecodeStudent_MissingRequiredFieldsAreNotDecodeErrors(t *testing.T) {
	in, err := DecodeStudent(strings.NewReader(`{"grade":"A"}`))
	require.NoError(t, err)

	assert.Empty(t, in.Name)
	assert.Nil(t, in.Age)
	assert.Equal(t, "A", *in.Grade)
}

func TestDecode_Errors(t *testing.T) {
	cases := map[string]string{
		"empty body":    ``,
		"not json":      `name=Ada`,
		"wrong type":    `{"name":"Ada","age":"thirty"}`,
		"array body":    `[{"name":"Ada"}]`,
		"fraction age":  `{"age":21.5}`,
		"trailing text": `{"name":"Ada","age":30} trailing-garbage`,
		"two objects":   `{"name":"Ada","age":30}{"name":"Lin","age":19}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeStudent(strings.NewReader(body))
			require.Error(t, err)

			var rich *goerrors.Error
			require.True(t, goerrors.As(err, &rich))
			assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
			assert.Equal(t, TextCodeInvalidBody, rich.TextCode)
		})
	}
}

func TestDecode_TrailingWhitespaceIsAllowed(t *testing.T) {
	in, err := DecodeStudent(strings.NewReader("{\"name\":\"Ada\",\"age\":30}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", in.Name)

	_, err = DecodePatch(strings.NewReader(`{"age":21} x`))
	require.Error(t, err)
}

func TestDecodePatch_NullAndAbsentBothKeepExisting(t *testing.T) {
	patch, err := DecodePatch(strings.NewReader(`{"grade":"A","email":null}`))
	require.NoError(t, err)

	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.Age)
	assert.Nil(t, patch.Email)
	require.NotNil(t, patch.Grade)
	assert.Equal(t, "A", *patch.Grade)
}
