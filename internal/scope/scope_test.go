package scope

import "testing"

func TestInsertAndLookup(t *testing.T) {
	root := Push(nil, ScopeRoot, "root-info")

	if sym := root.Insert(SymbolVariable, "x", 1); sym == nil {
		t.Fatal("Insert should succeed in an empty scope")
	}

	sym := root.Lookup("x")
	if sym == nil {
		t.Fatal("Lookup should find an inserted symbol")
	}
	if sym.Kind != SymbolVariable || sym.Info.(int) != 1 {
		t.Errorf("Unexpected symbol: kind=%d info=%v", sym.Kind, sym.Info)
	}

	if root.Lookup("y") != nil {
		t.Error("Lookup of an unknown name should return nil")
	}
}

func TestDuplicateInsertFails(t *testing.T) {
	root := Push(nil, ScopeRoot, nil)

	if root.Insert(SymbolVariable, "x", 1) == nil {
		t.Fatal("first insert should succeed")
	}
	if root.Insert(SymbolFunction, "x", 2) != nil {
		t.Error("second insert of the same name in the same scope should fail")
	}

	// The original symbol must be untouched.
	if sym := root.Lookup("x"); sym.Info.(int) != 1 {
		t.Errorf("Expected original payload 1, got %v", sym.Info)
	}
}

func TestShadowing(t *testing.T) {
	root := Push(nil, ScopeRoot, nil)
	root.Insert(SymbolVariable, "x", "outer")

	inner := Push(root, ScopeFunction, nil)
	if inner.Insert(SymbolVariable, "x", "inner") == nil {
		t.Fatal("shadowing across scopes must be permitted")
	}

	if sym := inner.Lookup("x"); sym.Info.(string) != "inner" {
		t.Errorf("Inner scope should win, got %v", sym.Info)
	}
	if sym := root.Lookup("x"); sym.Info.(string) != "outer" {
		t.Errorf("Outer scope unaffected, got %v", sym.Info)
	}

	if sym := inner.Pop().Lookup("x"); sym.Info.(string) != "outer" {
		t.Errorf("After pop the outer symbol should resolve, got %v", sym.Info)
	}
}

func TestParentChainLookup(t *testing.T) {
	root := Push(nil, ScopeRoot, nil)
	root.Insert(SymbolFunction, "f", nil)

	fn := Push(root, ScopeFunction, nil)
	loop := Push(fn, ScopeWhile, nil)

	if loop.Lookup("f") == nil {
		t.Error("Lookup should walk the whole parent chain")
	}
}

func TestFindEnclosingInfo(t *testing.T) {
	root := Push(nil, ScopeRoot, "root")
	fn := Push(root, ScopeFunction, "fn")
	loop := Push(fn, ScopeWhile, "loop")
	branch := Push(loop, ScopeIf, "if")

	if info := branch.FindEnclosingInfo(ScopeWhile); info != "loop" {
		t.Errorf("Expected loop info, got %v", info)
	}
	if info := branch.FindEnclosingInfo(ScopeFunction); info != "fn" {
		t.Errorf("Expected fn info, got %v", info)
	}
	if info := branch.FindEnclosingInfo(ScopeRoot); info != "root" {
		t.Errorf("Expected root info, got %v", info)
	}
	if info := fn.FindEnclosingInfo(ScopeWhile); info != nil {
		t.Errorf("Expected nil outside a loop, got %v", info)
	}
}

func TestManySymbolsOneScope(t *testing.T) {
	root := Push(nil, ScopeRoot, nil)

	names := []string{"a", "b", "ab", "ba", "count", "counter", "x0", "x1", "x2"}
	for i, name := range names {
		if root.Insert(SymbolVariable, name, i) == nil {
			t.Fatalf("Insert %q failed", name)
		}
	}
	for i, name := range names {
		sym := root.Lookup(name)
		if sym == nil || sym.Info.(int) != i {
			t.Errorf("Lookup %q: got %v", name, sym)
		}
	}
}
