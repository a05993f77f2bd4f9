package merkle

import (
	"fmt"
	"testing"
)

// BenchmarkBuildTree benchmarks tree construction with various whitelist sizes
func BenchmarkBuildTree(b *testing.B) {
	sizes := []int{10, 100, 1000, 5000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Addresses_%d", size), func(b *testing.B) {
			addrs := makeTestAddresses(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = BuildTree(addrs)
			}
		})
	}
}

// BenchmarkGenerateProof benchmarks proof generation
func BenchmarkGenerateProof(b *testing.B) {
	sizes := []int{10, 100, 1000, 5000}

	for _, size := range sizes {
		addrs := makeTestAddresses(size)
		tree, _ := BuildTree(addrs)

		b.Run(fmt.Sprintf("Addresses_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = tree.GenerateProof(i % size)
			}
		})
	}
}

// BenchmarkVerifyProof benchmarks proof verification
func BenchmarkVerifyProof(b *testing.B) {
	sizes := []int{10, 100, 1000, 5000}

	for _, size := range sizes {
		addrs := makeTestAddresses(size)
		tree, _ := BuildTree(addrs)
		proof, _ := tree.GenerateProof(0)

		b.Run(fmt.Sprintf("Addresses_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = VerifyProof(proof.Leaf, proof, tree.Root())
			}
		})
	}
}

// BenchmarkHashAddress benchmarks leaf encoding
func BenchmarkHashAddress(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = HashAddress("0x7eC55A0200671F83A4acA56CdDb14A5Dc13db593")
	}
}
