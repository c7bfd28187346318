package scandeps

import (
	"context"
	"reflect"
	"sort"
	"testing"
)

func TestScanLiteralIncludes(t *testing.T) {
	src := "#include \"local.h\"\n#include <system.h>\nint x;\n"
	res, err := Scan(context.Background(), "main.c", []byte(src))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []Include{
		{Target: "local.h", Angled: false},
		{Target: "system.h", Angled: true},
	}
	if !reflect.DeepEqual(res.Includes, want) {
		t.Errorf("Includes = %+v, want %+v", res.Includes, want)
	}
}

func TestScanMacroIncludeResolvesThroughDefines(t *testing.T) {
	src := "#define FT_DRIVER_H <freetype/ftdriver.h>\n" +
		"#define FT_AUTHHINTER_H FT_DRIVER_H\n" +
		"#include FT_AUTHHINTER_H\n"
	res, err := Scan(context.Background(), "main.c", []byte(src))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Includes) != 1 || res.Includes[0].Macro != "FT_AUTHHINTER_H" {
		t.Fatalf("Includes = %+v", res.Includes)
	}
	files := res.Files()
	want := []string{"freetype/ftdriver.h"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Files() = %v, want %v", files, want)
	}
}

func TestScanIgnoresFunctionLikeDefine(t *testing.T) {
	src := "#define MIN(a,b) ((a)<(b)?(a):(b))\n#include \"kept.h\"\n"
	res, err := Scan(context.Background(), "main.c", []byte(src))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Defines) != 0 {
		t.Errorf("Defines = %+v, want empty", res.Defines)
	}
	if len(res.Includes) != 1 || res.Includes[0].Target != "kept.h" {
		t.Errorf("Includes = %+v", res.Includes)
	}
}

func TestScanAllRunsConcurrentlyAndCollectsResults(t *testing.T) {
	files := map[string][]byte{
		"a.c": []byte("#include \"a.h\"\n"),
		"b.c": []byte("#include \"b.h\"\n"),
	}
	results, err := ScanAll(context.Background(), []string{"a.c", "b.c"}, func(_ context.Context, name string) ([]byte, error) {
		return files[name], nil
	})
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2 entries", results)
	}
	if results["a.c"].Includes[0].Target != "a.h" {
		t.Errorf("a.c includes = %+v", results["a.c"].Includes)
	}
	if results["b.c"].Includes[0].Target != "b.h" {
		t.Errorf("b.c includes = %+v", results["b.c"].Includes)
	}
}

func TestScanAllPropagatesReadError(t *testing.T) {
	wantErr := errScanTest{}
	_, err := ScanAll(context.Background(), []string{"missing.c"}, func(_ context.Context, name string) ([]byte, error) {
		return nil, wantErr
	})
	if err == nil {
		t.Fatal("ScanAll: want error, got nil")
	}
}

type errScanTest struct{}

func (errScanTest) Error() string { return "read failed" }

func TestFilesDropsUnresolvedMacro(t *testing.T) {
	res := Result{
		Includes: []Include{{Macro: "PLATFORM_H"}, {Target: "known.h"}},
		Defines:  map[string][]string{},
	}
	got := res.Files()
	sort.Strings(got)
	want := []string{"known.h"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}
