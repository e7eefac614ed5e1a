// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// dpcviz is the main package for the dpcviz command line tool. It charts the
// Italian COVID-19 data published by the Protezione Civile on GitHub: the
// cumulative level of a column, its daily change and its growth factor, plus
// a 3x3 overview dashboard per area.
package main
