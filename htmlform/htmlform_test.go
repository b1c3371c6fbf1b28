package htmlform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdsmith18542/fieldguard/form"
)

const page = `<!DOCTYPE html>
<html><body>
<form id="search"><input name="q" value="x"></form>
<form id="signup" name="register">
  <input type="text" name="name" id="fullName" value=" Ada ">
  <input type="email" name="email" value="bad">
  <div class="error-message">stale</div>
  <input type="checkbox" name="terms" value="yes">
  <select name="country">
    <option value="">Choose</option>
    <option value="in">India</option>
    <option selected>UK</option>
  </select>
  <input type="submit" name="go" value="Send">
</form>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func names(fields []form.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name()
	}
	return out
}

func TestDocument_Form(t *testing.T) {
	doc := parse(t)

	f, err := doc.Form("")
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, names(f.Fields()))

	byID, err := doc.Form("signup")
	require.NoError(t, err)
	byName, err := doc.Form("register")
	require.NoError(t, err)
	assert.Equal(t, names(byID.Fields()), names(byName.Fields()))
	assert.Equal(t, []string{"name", "email", "terms", "country"}, names(byID.Fields()))

	_, err = doc.Form("missing")
	assert.ErrorIs(t, err, ErrFormNotFound)

	empty, err := Parse(strings.NewReader("<p>no forms</p>"))
	require.NoError(t, err)
	_, err = empty.Form("")
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestField_Values(t *testing.T) {
	f, err := parse(t).Form("signup")
	require.NoError(t, err)

	name, ok := f.Field("name")
	require.True(t, ok)
	assert.Equal(t, " Ada ", name.Value())
	assert.Equal(t, "fullName", name.ID())
	assert.Equal(t, form.KindInput, name.Kind())

	byID, ok := f.FieldByID("fullName")
	require.True(t, ok)
	assert.Equal(t, "name", byID.Name())
	_, ok = f.FieldByID("")
	assert.False(t, ok)

	terms, _ := f.Field("terms")
	assert.Empty(t, terms.Value())

	country, _ := f.Field("country")
	assert.Equal(t, form.KindSelect, country.Kind())
	assert.Equal(t, "UK", country.Value())
	country.SetValue("in")
	assert.Equal(t, "in", country.Value())
	country.SetValue("nowhere")
	assert.Empty(t, country.Value())

	_, ok = f.Field("go")
	assert.False(t, ok)
}

func TestField_Cursor(t *testing.T) {
	f, err := parse(t).Form("signup")
	require.NoError(t, err)
	email, _ := f.Field("email")

	assert.Equal(t, 3, email.Cursor())
	email.SetCursor(1)
	assert.Equal(t, 1, email.Cursor())
	email.SetCursor(99)
	assert.Equal(t, 3, email.Cursor())
	email.SetValue("a@b.co")
	assert.Equal(t, 6, email.Cursor())
}

func TestForm_Annotations(t *testing.T) {
	doc := parse(t)
	f, err := doc.Form("signup")
	require.NoError(t, err)

	msg, ok := f.Annotation("email")
	require.True(t, ok)
	assert.Equal(t, "stale", msg)
	_, ok = f.Annotation("name")
	assert.False(t, ok)

	f.Annotate("name", "Required")
	f.Annotate("name", "Still required")
	msg, ok = f.Annotation("name")
	require.True(t, ok)
	assert.Equal(t, "Still required", msg)

	var out strings.Builder
	require.NoError(t, doc.Render(&out))
	assert.Equal(t, 2, strings.Count(out.String(), `class="error-message"`))

	f.RemoveAnnotation("name")
	_, ok = f.Annotation("name")
	assert.False(t, ok)

	f.Annotate("country", "Pick one")
	f.RemoveAnnotations()
	out.Reset()
	require.NoError(t, doc.Render(&out))
	assert.NotContains(t, out.String(), "error-message")
}

func TestBinding_SubmitAnnotatesDocument(t *testing.T) {
	doc := parse(t)
	f, err := doc.Form("signup")
	require.NoError(t, err)

	var called bool
	b := form.New().Attach(f, form.Config{
		Rules: map[string][]string{
			"name":    {"required", "validName"},
			"email":   {"required", "validEmail"},
			"country": {"required"},
		},
		Messages: map[string]map[string]string{"email": {"validEmail": "Enter a valid email"}},
		Success:  func(context.Context, map[string]string) { called = true },
	})
	defer b.Close()

	assert.False(t, b.Submit(context.Background()))
	assert.False(t, called)

	var out strings.Builder
	require.NoError(t, doc.Render(&out))
	html := out.String()
	assert.Contains(t, html, `<div class="error-message">Enter a valid email</div>`)
	assert.NotContains(t, html, "stale")
	assert.Equal(t, 1, strings.Count(html, "error-message"))

	email, _ := f.Field("email")
	email.SetValue("ada@example.org")
	assert.True(t, b.Submit(context.Background()))
	assert.True(t, called)
}
