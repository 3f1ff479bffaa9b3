/*
Package bench runs side by side benchmarks of the registered server strategies and renders the results.

Each strategy is started, load tested and stopped in turn so the strategies never compete for the
machine. Progress is drawn with a single bar for one strategy and with stacked bars when several are
compared. Results render as a table (pretty), one line per strategy (text) or a json array (json).
*/
package bench
