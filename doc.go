// Package gloom is the cache-line blocked Bloom filter that gloombench
// measures.
//
// # Architecture
//
// Cache-line blocking: the filter is divided into 512-bit (64-byte) blocks
// that match the CPU cache line size. All k bit probes for a single key land
// in the same block, so only one cache line is touched per operation.
//
// One-hashing with prime partitions: instead of computing k independent hash
// functions, a single 64-bit hash selects the block from its upper half and
// derives k bit positions from its lower half using modulo operations with
// distinct prime partition sizes.
//
// # Bulk operations
//
// [Filter.InsertBatch] and [Filter.FindBatch] take pre-computed hashes and a
// [simd.Flags] set. An empty set runs the scalar reference kernel, one key at
// a time with early exit. Any vector flag runs the lane kernel, which keeps
// eight keys in flight, builds each key's whole-block mask and compares all
// eight words of the block at once. The two kernels produce identical filter
// state and identical bitmaps; the flag set is purely a performance choice.
//
// FindBatch writes one bit per probed hash, least significant bit first.
//
// # Keys
//
// [Filter.Add], [Filter.AddString], [Filter.Test] and [Filter.TestString]
// hash arbitrary keys with xxh3. [HashKey] exposes the same hash so keys can
// be pre-hashed for the bulk operations.
//
// # Thread Safety
//
// A [Filter] is not safe for concurrent writes. Once built it may be probed
// concurrently, since Test and FindBatch never modify it.
//
// # References
//
//   - One-Hashing Bloom Filter: https://yangtonghome.github.io/uploads/One_Hashing.pdf
//   - Cache-line blocking (RocksDB): https://github.com/facebook/rocksdb/wiki/RocksDB-Bloom-Filter
package gloom
