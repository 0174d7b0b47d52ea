package main

import (
	"fmt"
	"strings"

	"github.com/weskkin/Hardware-Trojan-Insertion-Framework/internal/trojan"
)

var trojanKindNames = map[string]trojan.Kind{
	"functional_xor":   trojan.FunctionalXOR,
	"dos_sa0":          trojan.DOSStuckAt0,
	"dos_sa1":          trojan.DOSStuckAt1,
	"delay_parametric": trojan.DelayParametric,
	"leak_info":        trojan.LeakInfo,
}

var trojanKindLabels = []string{
	"functional_xor",
	"dos_sa0",
	"dos_sa1",
	"delay_parametric",
	"leak_info",
}

func parseTrojanKind(s string) (trojan.Kind, error) {
	k, ok := trojanKindNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown trojan kind %q (want one of %v)", s, trojanKindLabels)
	}
	return k, nil
}
