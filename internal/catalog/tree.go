package catalog

import "sort"

// Tree is an immutable snapshot of the tag hierarchy.
type Tree struct {
	byCode   map[string]*Tag
	children map[string][]*Tag
}

// NewTree indexes tags by code and parent. Later duplicates win.
func NewTree(tags []*Tag) *Tree {
	tree := &Tree{
		byCode:   make(map[string]*Tag, len(tags)),
		children: make(map[string][]*Tag),
	}
	for _, tag := range tags {
		if tag == nil || tag.Code == "" {
			continue
		}
		tree.byCode[tag.Code] = tag
	}
	for _, tag := range tree.byCode {
		if tag.ParentCode != "" {
			tree.children[tag.ParentCode] = append(tree.children[tag.ParentCode], tag)
		}
	}
	for parent := range tree.children {
		kids := tree.children[parent]
		sort.Slice(kids, func(i, j int) bool { return kids[i].Code < kids[j].Code })
	}
	return tree
}

// Tag looks up a tag by code.
func (t *Tree) Tag(code string) (*Tag, bool) {
	tag, ok := t.byCode[code]
	return tag, ok
}

// Children returns the direct children of code sorted by code.
func (t *Tree) Children(code string) []*Tag {
	return t.children[code]
}

// Ancestors returns the chain of parents of code, nearest first.
func (t *Tree) Ancestors(code string) []*Tag {
	var out []*Tag
	seen := map[string]struct{}{code: {}}
	current, ok := t.byCode[code]
	for ok && current.ParentCode != "" {
		if _, loop := seen[current.ParentCode]; loop {
			break
		}
		seen[current.ParentCode] = struct{}{}
		parent, found := t.byCode[current.ParentCode]
		if !found {
			break
		}
		out = append(out, parent)
		current, ok = parent, true
	}
	return out
}

// IsDescendant reports whether code sits strictly below ancestor.
func (t *Tree) IsDescendant(code, ancestor string) bool {
	for _, tag := range t.Ancestors(code) {
		if tag.Code == ancestor {
			return true
		}
	}
	return false
}

// AccountFor returns the nearest ancestor-or-self of code carrying a login.
func (t *Tree) AccountFor(code string) (*Tag, bool) {
	if tag, ok := t.byCode[code]; ok && tag.Login() != "" {
		return tag, true
	}
	for _, tag := range t.Ancestors(code) {
		if tag.Login() != "" {
			return tag, true
		}
	}
	return nil, false
}

// AssetAccount resolves the account owning an asset through its tags below root.
func (t *Tree) AssetAccount(asset *Asset, root string) (*Tag, bool) {
	if asset == nil {
		return nil, false
	}
	for _, code := range asset.Tags {
		if code != root && !t.IsDescendant(code, root) {
			continue
		}
		if account, ok := t.AccountFor(code); ok {
			return account, true
		}
	}
	return nil, false
}

// HasDescendantOf reports whether the asset carries any tag strictly below root.
func (t *Tree) HasDescendantOf(asset *Asset, root string) bool {
	if asset == nil {
		return false
	}
	for _, code := range asset.Tags {
		if t.IsDescendant(code, root) {
			return true
		}
	}
	return false
}

// Accounts returns every account reference below root.
func (t *Tree) Accounts(root string) []*Tag {
	var out []*Tag
	seen := map[string]bool{}
	var walk func(code string)
	walk = func(code string) {
		if seen[code] {
			return
		}
		seen[code] = true
		for _, child := range t.children[code] {
			if child.Login() != "" {
				out = append(out, child)
				continue
			}
			walk(child.Code)
		}
	}
	walk(root)
	return out
}

// AccountByLogin finds the account reference below root with the given login.
func (t *Tree) AccountByLogin(root, login string) (*Tag, bool) {
	for _, account := range t.Accounts(root) {
		if account.Login() == login {
			return account, true
		}
	}
	return nil, false
}
