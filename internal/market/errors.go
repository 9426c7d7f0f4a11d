package market

import "errors"

// ErrPriceUnavailable is returned by price sources that currently hold no
// usable price, for example a live feed that has not seen a trade yet.
var ErrPriceUnavailable = errors.New("price unavailable")
