// package repositories provides the persistence layer for the fetched
// library snapshot.
//
// The snapshot is a cache between the fetch and transfer stages: a fetch
// replaces it wholesale, a transfer can replay from it without touching the
// source account again. Position is the chronological index assigned at
// fetch time and is the only ordering the transfer stage trusts.
package repositories
