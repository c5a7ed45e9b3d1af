// SPDX-License-Identifier: MPL-2.0

package platform

import "fmt"

// Product describes how an IDE product code is distributed and launched.
type Product struct {
	// Code is the product code used in configuration, e.g. "IC".
	Code string
	// Name is the marketing name.
	Name string
	// DownloadPath is the directory on the distribution service.
	DownloadPath string
	// FilePrefix is the archive file name prefix.
	FilePrefix string
	// Launcher is the launcher script base name under bin/.
	Launcher string
}

//nolint:gochecknoglobals // Read-only product table.
var products = map[string]Product{
	"IC": {Code: "IC", Name: "IntelliJ IDEA Community", DownloadPath: "idea", FilePrefix: "ideaIC", Launcher: "idea"},
	"IU": {Code: "IU", Name: "IntelliJ IDEA Ultimate", DownloadPath: "idea", FilePrefix: "ideaIU", Launcher: "idea"},
	"PC": {Code: "PC", Name: "PyCharm Community", DownloadPath: "python", FilePrefix: "pycharm-community", Launcher: "pycharm"},
	"PY": {Code: "PY", Name: "PyCharm Professional", DownloadPath: "python", FilePrefix: "pycharm-professional", Launcher: "pycharm"},
	"GO": {Code: "GO", Name: "GoLand", DownloadPath: "go", FilePrefix: "goland", Launcher: "goland"},
	"WS": {Code: "WS", Name: "WebStorm", DownloadPath: "webstorm", FilePrefix: "WebStorm", Launcher: "webstorm"},
	"PS": {Code: "PS", Name: "PhpStorm", DownloadPath: "webide", FilePrefix: "PhpStorm", Launcher: "phpstorm"},
	"CL": {Code: "CL", Name: "CLion", DownloadPath: "cpp", FilePrefix: "CLion", Launcher: "clion"},
	"RM": {Code: "RM", Name: "RubyMine", DownloadPath: "ruby", FilePrefix: "RubyMine", Launcher: "rubymine"},
	"DB": {Code: "DB", Name: "DataGrip", DownloadPath: "datagrip", FilePrefix: "datagrip", Launcher: "datagrip"},
	"RD": {Code: "RD", Name: "Rider", DownloadPath: "rider", FilePrefix: "JetBrains.Rider", Launcher: "rider"},
}

// LookupProduct returns the product for a platform type code.
func LookupProduct(code string) (Product, error) {
	p, ok := products[code]
	if !ok {
		return Product{}, fmt.Errorf("unknown platform type %q", code)
	}
	return p, nil
}

// Launchers returns every known launcher base name, used to locate the
// launcher of a local installation.
func Launchers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, code := range []string{"IC", "PC", "GO", "WS", "PS", "CL", "RM", "DB", "RD"} {
		l := products[code].Launcher
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
