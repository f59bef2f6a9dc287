package lens

// FaceAdjacency maps each face index to the ascending list of face
// indices sharing an edge with it. Adjacency is symmetric: f2 appears
// in adj[f1] exactly when f1 appears in adj[f2].
type FaceAdjacency [][]int

// edge is an undirected mesh edge, canonicalized so that a < b.
type edge struct {
	a, b int
}

func makeEdge(v1, v2 int) edge {
	if v1 > v2 {
		v1, v2 = v2, v1
	}
	return edge{v1, v2}
}

// FaceAdjacency builds the edge-sharing adjacency of the mesh. Two
// faces are adjacent iff they share an edge referenced by exactly two
// faces. Boundary edges (one face) contribute no adjacency, and
// non-manifold edges (more than two faces) are not treated as
// adjacency-forming.
func (m *Mesh) FaceAdjacency() FaceAdjacency {
	edgeFaces := make(map[edge][]int)
	for f, face := range m.Faces {
		n := len(face)
		for i := range face {
			e := makeEdge(face[i], face[(i+1)%n])
			edgeFaces[e] = append(edgeFaces[e], f)
		}
	}

	adj := make(FaceAdjacency, len(m.Faces))
	for _, faces := range edgeFaces {
		if len(faces) != 2 {
			continue
		}
		adj[faces[0]] = append(adj[faces[0]], faces[1])
		adj[faces[1]] = append(adj[faces[1]], faces[0])
	}
	for f := range adj {
		adj[f] = sortedUnique(adj[f])
	}
	return adj
}
