package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

func newTestImage(t *testing.T) *model.Image {
	t.Helper()
	img := model.NewImage()
	name := img.Strings.GetOrAdd("TestModule.dll")
	_, err := img.Rows.Append(schema.Module, map[string]uint32{"Name": name})
	require.NoError(t, err)
	return img
}

func TestVerifyImageAcceptsWellFormedImage(t *testing.T) {
	img := newTestImage(t)
	require.NoError(t, verifyImage(img))
}

func TestVerifyIndexBoundsCatchesDanglingTableIndex(t *testing.T) {
	img := newTestImage(t)
	nestedName1 := img.Strings.GetOrAdd("Outer")
	_, err := img.Rows.Append(schema.TypeDef, map[string]uint32{"TypeName": nestedName1})
	require.NoError(t, err)

	// NestedClass.EnclosingClass points at TypeDef row 5, but only 1 exists.
	_, err = img.Rows.Append(schema.NestedClass, map[string]uint32{"NestedClass": 1, "EnclosingClass": 5})
	require.NoError(t, err)

	err = verifyIndexBounds(img)
	require.Error(t, err)
}

func TestFormatInspectReportListsPopulatedTables(t *testing.T) {
	img := newTestImage(t)
	report := formatInspectReport("test.dll", img)
	require.Contains(t, report, "test.dll")
	require.Contains(t, report, "Module")
}
