package topology

import (
	"fmt"

	"github.com/matzehuels/molforge/pkg/errors"
)

// siteError returns a TOPOLOGY error naming the offending site.
func siteError(ref SiteRef, format string, args ...any) *errors.Error {
	return errors.New(errors.ErrCodeTopology, format, args...).WithDetail(ref.Kind.String(), ref.ID)
}

// StoichiometryWarning reports a connection whose two sides offered
// different numbers of bonder atoms. The unpaired atoms stay unbonded and
// the build continues.
//
// A site with more bonder atoms than connections is reported with Edge -1
// and the site as both From and To.
type StoichiometryWarning struct {
	Edge     int     `json:"edge"`
	From     SiteRef `json:"from"`
	To       SiteRef `json:"to"`
	Unpaired []int   `json:"unpaired_atoms"`
}

func (w StoichiometryWarning) String() string {
	if w.Edge < 0 {
		return fmt.Sprintf("stoichiometry mismatch at %s %d: atoms %v have no connection",
			w.From.Kind, w.From.ID, w.Unpaired)
	}
	return fmt.Sprintf("stoichiometry mismatch on edge %d between %s %d and %s %d: unpaired atoms %v",
		w.Edge, w.From.Kind, w.From.ID, w.To.Kind, w.To.ID, w.Unpaired)
}
