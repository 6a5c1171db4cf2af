// Schema lives in migrations/*.surql, embedded into the binary and applied in
// file-name order by Migrate. Each applied script is recorded in the
// schema_migration table so restarts are no-ops.
package database
