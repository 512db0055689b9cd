package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Repo methods that mutate rows.
var repoWriteMethods = map[string]bool{
	"Create":                 true,
	"CreateIgnoreDuplicates": true,
	"Insert":                 true,
	"UpdateFields":           true,
	"UpdateAmount":           true,
	"Delete":                 true,
	"DeleteByIDs":            true,
	"DeleteByRecipeIDs":      true,
	"DeleteByTargetIDs":      true,
}

// Aggregate methods that own a write transaction.
var aggregateWriteMethods = map[string]bool{
	"Create": true,
	"Update": true,
	"Delete": true,
	"Add":    true,
	"Remove": true,
}

type repoField struct {
	Name     string `json:"name"`
	RepoType string `json:"repo_type"`
	Area     string `json:"area"`
	Guarded  bool   `json:"guarded"`
}

type methodStats struct {
	StructName          string   `json:"struct_name"`
	Method              string   `json:"method"`
	File                string   `json:"file"`
	Line                int      `json:"line"`
	GuardedRepoWrites   int      `json:"guarded_repo_writes"`
	GuardedFieldsTouch  []string `json:"guarded_fields_touched"`
	AggregateWrites     int      `json:"aggregate_writes"`
	AggregateMethodsHit []string `json:"aggregate_methods"`
}

type report struct {
	GuardedRepoWriteCallsites int           `json:"guarded_repo_write_callsites"`
	AggregateWriteCallsites   int           `json:"aggregate_write_callsites"`
	Residual                  []methodStats `json:"residual_methods"`
	Adopted                   []methodStats `json:"aggregate_methods"`
	GuardedRepoFields         []repoField   `json:"guarded_repo_fields"`
}

type structFields struct {
	repos      map[string]repoField
	aggregates map[string]string
}

// areaForRepoType names the aggregate that owns writes to a repo. Repos
// outside any aggregate are not guarded.
func areaForRepoType(repoType string) (string, bool) {
	switch repoType {
	case "RecipeRepo", "RecipeIngredientRepo", "RecipeTagRepo":
		return "Composition", true
	case "FavoriteRepo", "ShoppingCartRepo", "SubscribeRepo":
		return "Membership", true
	case "IngredientRepo", "TagRepo":
		return "Catalog", false
	default:
		return "Other", false
	}
}

func audit(root string) (report, error) {
	servicesDir := filepath.Join(root, "internal", "services")
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, servicesDir, func(fi os.FileInfo) bool {
		name := fi.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	if err != nil {
		return report{}, fmt.Errorf("parse dir: %w", err)
	}
	pkg, ok := pkgs["services"]
	if !ok {
		return report{}, fmt.Errorf("services package not found in %s", servicesDir)
	}

	fields := map[string]structFields{}
	for _, f := range pkg.Files {
		collectStructFields(f, fields)
	}
	var methods []methodStats
	for path, f := range pkg.Files {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		methods = append(methods, collectMethodStats(fset, f, filepath.ToSlash(rel), fields)...)
	}
	return buildReport(fields, methods), nil
}

func collectStructFields(file *ast.File, out map[string]structFields) {
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok || st.Fields == nil {
				continue
			}
			sf := structFields{repos: map[string]repoField{}, aggregates: map[string]string{}}
			for _, field := range st.Fields.List {
				sel, ok := field.Type.(*ast.SelectorExpr)
				if !ok || len(field.Names) == 0 {
					continue
				}
				pkgIdent, ok := sel.X.(*ast.Ident)
				if !ok {
					continue
				}
				name := field.Names[0].Name
				switch pkgIdent.Name {
				case "repos":
					if !strings.HasSuffix(sel.Sel.Name, "Repo") {
						continue
					}
					area, guarded := areaForRepoType(sel.Sel.Name)
					sf.repos[name] = repoField{Name: name, RepoType: sel.Sel.Name, Area: area, Guarded: guarded}
				case "domainagg":
					sf.aggregates[name] = sel.Sel.Name
				}
			}
			if len(sf.repos) > 0 || len(sf.aggregates) > 0 {
				out[ts.Name.Name] = sf
			}
		}
	}
}

func collectMethodStats(fset *token.FileSet, file *ast.File, relFile string, fields map[string]structFields) []methodStats {
	var out []methodStats
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv == nil || fd.Body == nil || len(fd.Recv.List) == 0 {
			continue
		}
		recvName, recvType := recvInfo(fd.Recv.List[0])
		sf, ok := fields[recvType]
		if !ok || recvName == "" {
			continue
		}

		m := methodStats{
			StructName: recvType,
			Method:     fd.Name.Name,
			File:       relFile,
			Line:       fset.Position(fd.Pos()).Line,
		}
		touched := map[string]bool{}
		hit := map[string]bool{}
		ast.Inspect(fd.Body, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			fnSel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			rcvSel, ok := fnSel.X.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			base, ok := rcvSel.X.(*ast.Ident)
			if !ok || base.Name != recvName {
				return true
			}
			field, method := rcvSel.Sel.Name, fnSel.Sel.Name
			if rf, ok := sf.repos[field]; ok && rf.Guarded && repoWriteMethods[method] {
				m.GuardedRepoWrites++
				touched[field] = true
			}
			if _, ok := sf.aggregates[field]; ok && aggregateWriteMethods[method] {
				m.AggregateWrites++
				hit[method] = true
			}
			return true
		})
		m.GuardedFieldsTouch = sortedKeys(touched)
		m.AggregateMethodsHit = sortedKeys(hit)
		out = append(out, m)
	}
	return out
}

func buildReport(fields map[string]structFields, methods []methodStats) report {
	sort.Slice(methods, func(i, j int) bool {
		if methods[i].File == methods[j].File {
			return methods[i].Line < methods[j].Line
		}
		return methods[i].File < methods[j].File
	})

	var r report
	for _, m := range methods {
		if m.GuardedRepoWrites > 0 {
			r.GuardedRepoWriteCallsites += m.GuardedRepoWrites
			r.Residual = append(r.Residual, m)
		}
		if m.AggregateWrites > 0 {
			r.AggregateWriteCallsites += m.AggregateWrites
			r.Adopted = append(r.Adopted, m)
		}
	}

	keys := []string{}
	byKey := map[string]repoField{}
	for structName, sf := range fields {
		for _, rf := range sf.repos {
			if rf.Guarded {
				k := structName + "." + rf.Name
				keys = append(keys, k)
				byKey[k] = rf
			}
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.GuardedRepoFields = append(r.GuardedRepoFields, byKey[k])
	}
	return r
}

func recvInfo(field *ast.Field) (string, string) {
	if field == nil || len(field.Names) == 0 {
		return "", ""
	}
	switch t := field.Type.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return field.Names[0].Name, id.Name
		}
	case *ast.Ident:
		return field.Names[0].Name, t.Name
	}
	return "", ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
