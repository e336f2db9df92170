// Command ocat manages a catalog of CNC part programs: it scans program
// files into a local database, classifies duplicates, allocates program
// numbers from the reserved range registry, and performs the renames that
// keep files, headers, catalog, and registry consistent.
package main
