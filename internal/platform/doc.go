// SPDX-License-Identifier: MPL-2.0

// Package platform resolves which host-IDE build a plugin is compiled, tested
// and run against.
//
// A Target is either Local (an IDE installation on disk) or Remote (an IDE
// product code plus version, fetched from the distribution service). Resolve
// is the only constructor; consumers switch on the concrete type:
//
//	switch t := target.(type) {
//	case platform.Local:
//	    home = t.Path
//	case platform.Remote:
//	    home, err = fetcher.Fetch(ctx, t)
//	}
package platform
