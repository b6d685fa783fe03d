// Package workitem defines the unit of work (one video in progress), its
// lifecycle stages, and the directory-name grammar that persists it:
//
//	<series>-<sequence>_State<stage>_<YYYY-MM-DD>_<title>
//
// The grammar is one Codec; repositories may persist items another way.
package workitem
