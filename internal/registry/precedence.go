// SPDX-License-Identifier: MPL-2.0

package registry

import "strings"

// Precedence orders two installations of the same package. A negative result
// keeps a over b, a positive one keeps b. It must be a strict total order so
// the winner does not depend on scan order.
type Precedence func(a, b *InstalledMod) int

// PreferLocal keeps official content first, then local copies, then
// subscriptions. Ties go to the lexicographically smaller path.
func PreferLocal(a, b *InstalledMod) int {
	return byRank(a, b, map[Source]int{SourceOfficial: 0, SourceLocal: 1, SourceSubscribed: 2})
}

// PreferSubscribed is PreferLocal with local and subscribed swapped.
func PreferSubscribed(a, b *InstalledMod) int {
	return byRank(a, b, map[Source]int{SourceOfficial: 0, SourceSubscribed: 1, SourceLocal: 2})
}

func byRank(a, b *InstalledMod, rank map[Source]int) int {
	if d := rank[a.Source] - rank[b.Source]; d != 0 {
		return d
	}
	return strings.Compare(a.Path, b.Path)
}
